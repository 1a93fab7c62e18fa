/*
session holds the server side of an authenticated browser session: opaque
bearer tokens, the hashed-token store, and the service that drives the login
protocol.

A session is created once per successful callback exchange and addressed only
by the SHA-256 hash of its token; the raw token lives in the browser cookie
and is never stored or logged. Sessions use a sliding expiration: past
Record.ExpireAt a verify call rotates the token (the old one becomes invalid,
single-use refresh), past Record.DestroyAt the session is gone.

The default store is in-memory, so sessions do not survive a process restart.
A Redis-backed store is available for deployments that need them to.
*/
package session
