// Package preflight provides readiness checks for the directories and
// external tools a migration depends on.
//
// The migrate command runs RunAll before touching the output directory and
// aborts when a check fails. The status command shows every check together
// with CheckSystemDeps.
package preflight
