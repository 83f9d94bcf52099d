package output

// Exit codes for failures the dispatcher itself detects.
//
// A command that returns normally chooses its own status, and that status
// becomes the exit code unchanged: grep exits 1 when nothing matches, and a
// plugin's exit code passes through. Such a status may equal one of the codes
// below. The dispatcher's own failures are distinguished by the "Error:" line
// on stderr and by the outcome recorded in the audit log.
const (
	ExitOK          = 0 // success of the last segment
	ExitUserError   = 1 // unknown command, bad flags or arguments
	ExitSystemError = 2 // failure raised while a command was running
	ExitAborted     = 3 // unrecoverable failure, pipeline aborted
)
