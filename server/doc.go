/*
server maps the session service onto HTTP: the login-start and callback
routes, the session cookie, and the authentication gate for protected routes.

Login failures are deliberately silent toward the browser. Whatever goes
wrong while starting or completing a login, the user is redirected back to
the configured web URI without detail; the cause goes to the server log only.
Protected routes fail closed: any verification problem yields a 401.
*/
package server
