package domain

// User is a registered account. Usernames are not unique; two users may share one.
type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
}
