package pipeline

// State identifies one stage of the install pipeline.
type State string

const (
	StateIdle              State = "idle"
	StateFormatting        State = "formatting"
	StateMounting          State = "mounting"
	StateMountingBoot      State = "mounting-boot"
	StateFetching          State = "fetching"
	StateExtracting        State = "extracting"
	StateConfiguringGuest  State = "configuring-guest"
	StateSwapSetup         State = "swap-setup"
	StateBootloaderInstall State = "bootloader-install"
	StateUnmounting        State = "unmounting"
	StateAborting          State = "aborting"
	StateDone              State = "done"
)

// Progress is one event on the progress channel. Finished marks the single
// terminal success event; every other event is a pending update carrying a
// status line and a 0-100 percentage.
type Progress struct {
	Message  string
	Percent  int
	Finished bool
}
