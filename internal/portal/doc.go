// portal
//
// Client for the AWS SSO portal API used by the browser based sign in.
//
// A Client is created by exchanging a single-use authorization code for a
// bearer token, after which it can list the app instances (one per account)
// and their role profiles, and exchange an account/role pair for temporary
// role credentials.
//
// Only the first page of any list endpoint is returned.
package portal
