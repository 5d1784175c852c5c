package contextkey

// key is a private type so values set here never collide with other packages.
type key string

const (
	UserID key = "user_id"
)
