// Package process supervises a single game server process.
//
// A Supervisor starts the server executable in its own process group with
// stdout and stderr merged into one pipe. A reader goroutine splits the
// output into lines, classifies each line with bedrock.Classify and hands the
// resulting events to a Publisher in output order. Console commands are
// written to the server's stdin one line at a time.
//
// Stopping kills the whole process group and publishes a ProcessStopped
// event, which is always the last event of that run. A server that exits on
// its own ends in StateExited or StateCrashed instead, without ProcessStopped.
//
//	sup, err := process.NewSupervisor(ctx, process.Options{
//	    Executable: "/opt/bedrock/bedrock_server",
//	    Publisher:  bus,
//	})
//	if err != nil {
//	    return err
//	}
//	defer sup.Close()
//	if err := sup.Run(); err != nil {
//	    return err
//	}
//	sup.SendCommand(ctx, bedrock.Say{Message: "hello"})
package process
