// Package process runs the child processes behind console elements.
//
// A Supervisor starts and tracks processes and tears them all down at
// shutdown (SIGTERM, then SIGKILL after a timeout). A Session wires one
// process to the update loop through two goroutines:
//
//   - the reader copies merged stdout and stderr into an output Queue;
//   - the writer drains an input Queue into stdin.
//
// Neither side ever blocks the update loop: Queue.Push never blocks and the
// loop drains output once per tick. Write errors are swallowed; a read EOF
// ends the reader.
//
//	sup := process.NewSupervisor()
//	defer sup.Shutdown(time.Second)
//
//	sess, err := process.NewSession(sup, "console", []string{"sh"}, "")
//	if err != nil {
//	    return err
//	}
//	sess.Write([]byte("ls\n"))
//	for _, chunk := range sess.Output().Drain() {
//	    render(chunk)
//	}
//
// Supervisor, Process, Session and Queue are safe for concurrent use.
package process
