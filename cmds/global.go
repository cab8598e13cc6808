package cmds

// GlobalExecutor holds the commands defined at package init time.
var GlobalExecutor = NewExecutor()

func Define(name string, command *Command) {
	GlobalExecutor.Define(name, command)
}

// Execute runs args against GlobalExecutor. It panics on errors.
func Execute(args []string) {
	GlobalExecutor.MustExecute(args)
}
