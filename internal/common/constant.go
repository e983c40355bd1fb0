package common

// AccessTokenHeaderName is the HTTP header carrying the bearer access token.
const AccessTokenHeaderName = "Authorization"

// TokenValueSize is the number of random bytes behind every single-use
// token value (hex encoded, so the value is twice as long).
const TokenValueSize = 32
