// Package auth provides the authentication primitives of the gradebook
// gateway.
//
// This package implements:
//   - Principals and the Role enumeration
//   - The request-scoped security context carried in context.Context
//   - Bearer token issuance and validation (TokenService)
//   - Credential hashing and account lookup (CredentialVerifier)
//
// Authorization decisions (which chain governs a path, who may pass)
// live in the middleware package; this package only answers "who is
// this" and "is this proof genuine".
package auth
