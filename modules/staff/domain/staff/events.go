package staff

type CreatedEvent struct {
	Actor  string
	Params CreateParams
}
