package cmd

// SessionsCmd manages sessions
type SessionsCmd struct {
	Add       SessionsAddCmd       `cmd:"add" help:"Create sessions and optionally start an agent"`
	Archive   SessionsArchiveCmd   `cmd:"archive" help:"Archive a session"`
	Del       SessionsDelCmd       `cmd:"del" help:"Delete a session and its worktree"`
	List      SessionsListCmd      `cmd:"list" help:"List sessions" default:"1"`
	Move      SessionsMoveCmd      `cmd:"move" aliases:"mv" help:"Move a session into a folder"`
	Output    SessionsOutputCmd    `cmd:"output" help:"Print the output history of a session"`
	Reorder   SessionsReorderCmd   `cmd:"reorder" help:"Set the display order of sessions"`
	RunScript SessionsRunScriptCmd `cmd:"run-script" help:"Run the project's run script in a session worktree"`
	Send      SessionsSendCmd      `cmd:"send" help:"Send a message to a session's agent"`
	Stop      SessionsStopCmd      `cmd:"stop" help:"Stop a session's agent"`
	Unarchive SessionsUnarchiveCmd `cmd:"unarchive" help:"Restore an archived session"`
	View      SessionsViewCmd      `cmd:"view" help:"View a session and mark it as seen"`
}
