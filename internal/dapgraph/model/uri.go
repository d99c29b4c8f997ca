package model

import "fmt"

// URI builders for the canonical grammar in §4.7. Kept as plain
// functions rather than a formatting struct since every one is a
// one-line Sprintf with no shared state, matching the host codebase's
// preference for small free functions over ceremony.

func debuggerURI() string { return "debugger" }

func sessionURI(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func threadURI(sessionID string, threadID int) string {
	return fmt.Sprintf("thread:%s:%d", sessionID, threadID)
}

func stackURI(sessionID string, threadID, stackIndex int) string {
	return fmt.Sprintf("stack:%s:%d:%d", sessionID, threadID, stackIndex)
}

func frameURI(sessionID string, frameID, seq int) string {
	return fmt.Sprintf("frame:%s:%d:%d", sessionID, frameID, seq)
}

func scopeURI(sessionID string, frameID, seq int, name string) string {
	return fmt.Sprintf("scope:%s:%d:%d:%s", sessionID, frameID, seq, name)
}

func variableURI(sessionID string, variablesReference int, name string) string {
	return fmt.Sprintf("variable:%s:%d:%s", sessionID, variablesReference, name)
}

func sourceURI(sourceKey string) string {
	return fmt.Sprintf("source:%s", sourceKey)
}

func sourceBindingURI(sessionID, sourceKey string) string {
	return fmt.Sprintf("sourcebinding:%s:%s", sessionID, sourceKey)
}

func breakpointURI(sourcePath string, line, column int) string {
	return fmt.Sprintf("breakpoint:%s:%d:%d", sourcePath, line, column)
}

func breakpointBindingURI(sessionID, sourcePath string, line, column int) string {
	return fmt.Sprintf("bpbinding:%s:%s:%d:%d", sessionID, sourcePath, line, column)
}

func outputURI(sessionID string, seq int) string {
	return fmt.Sprintf("output:%s:%d", sessionID, seq)
}

func exceptionFilterURI(sessionID, filterID string) string {
	return fmt.Sprintf("exceptionfilter:%s:%s", sessionID, filterID)
}
