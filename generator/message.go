package generator

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
