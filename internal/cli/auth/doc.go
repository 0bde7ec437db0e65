// Package auth owns the login state that the expiry coordinator tears down.
//
// Service.Login talks to the login endpoint on a plain transport, so a
// rejected password is reported as ErrLoginRejected instead of starting an
// expiry episode. On success it stores the token and user, resets the
// coordinator and sends the user back to the stored return path.
package auth
