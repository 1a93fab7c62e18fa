/*
oidc implements the exchange side of the dashboard's login flow: a typical
3-legged OIDC authorization code flow against an external identity provider.

Primary types provided by the package

* Config: the relying-party configuration (client id/secret, endpoint
resolution settings, claim names, scopes, redirect URL).

* Client: talks to the identity provider. It can render the markup that sends
a browser to the provider's authorize endpoint, exchange an authorization code
for tokens, and extract an Identity from either a userinfo response or the
returned id_token.

* Identity: the subject id and display name extracted from the provider's
identity payload.

Endpoint resolution follows a strict priority: if an autodiscovery URL is
configured it is fetched fresh on every call (no caching), otherwise the
explicitly configured authorize/token/resource URLs are used. The absence of
a usable endpoint for the requested operation is an error.
*/
package oidc
