// Package process is the process-control plugin: it lets the application
// and its frontend request exit with a code, or a relaunch of the running
// executable.
//
// The frontend reaches it through runtime events:
//
//	process://exit     {"code": 3}
//	process://restart
package process
