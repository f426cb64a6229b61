package core

type (
	// Logger is any service that can log messages.
	// expected args: error | map[string]interface{} | Requester
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Requester identifies who triggered a logged event.
	Requester struct {
		ID       string
		Username string
		Email    string
	}
)
