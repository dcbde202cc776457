package component

// IntentScript feeds Input from a tengo script. Path names a file under
// prefabs/scripts; Source, when set, is used instead.
type IntentScript struct {
	Path   string
	Source string
}

var IntentScriptComponent = NewComponent[IntentScript]()
