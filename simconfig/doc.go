// Package simconfig loads simcore.Settings from YAML files and can
// watch a file for changes, re-loading and pushing the result into a
// running Driver via ApplySettings. Settings validation itself stays
// in simcore (Settings.normalize, applied by Driver.ApplySettings);
// this package is only concerned with getting bytes off disk and
// noticing when they change.
package simconfig
