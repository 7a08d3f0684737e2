package health

type RootMessage struct {
	Message string `json:"message"`
}

type Status struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Database    string `json:"database"`
}
