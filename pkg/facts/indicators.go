// Package facts describes what the analysis pass found out about each
// construct. Scope contexts only read these facts; they are final by the
// time a context is created.
package facts

// Indicators holds the flags set on a construct after finalization. Embed it
// in a declaration to provide the flag predicates.
type Indicators struct {
	generator              bool
	localsDict             bool
	tryExcept              bool
	exec                   bool
	breakContinueException bool
}

func (i *Indicators) MarkAsGenerator()    { i.generator = true }
func (i *Indicators) IsGenerator() bool   { return i.generator }
func (i *Indicators) MarkAsLocalsDict()   { i.localsDict = true }
func (i *Indicators) HasLocalsDict() bool { return i.localsDict }

// MarkAsTryExceptContaining records that the construct contains a
// try/except, so its frame must keep the active exception.
func (i *Indicators) MarkAsTryExceptContaining()      { i.tryExcept = true }
func (i *Indicators) NeedsFrameExceptionKeeper() bool { return i.tryExcept }
func (i *Indicators) MarkAsExecContaining()           { i.exec = true }
func (i *Indicators) IsExecContaining() bool          { return i.exec }

// MarkAsExceptionBreakContinue records that break and continue may have to
// travel as exceptions, e.g. out of a finally block.
func (i *Indicators) MarkAsExceptionBreakContinue()     { i.breakContinueException = true }
func (i *Indicators) NeedsExceptionBreakContinue() bool { return i.breakContinueException }
