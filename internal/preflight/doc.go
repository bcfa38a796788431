// Package preflight checks that the paths and credentials a sync run needs
// are usable before any file is touched.
//
// RunAll covers local state only: directory permissions, the private key and
// the known_hosts file. CheckRemote additionally opens a session and lists
// both remote directories. The run command logs failed local checks as
// warnings; "sftpsync check" renders everything.
package preflight
