// credentialexchange
//
// Handles what happens to AWS temporary credentials once the SSO portal
// has issued them.
//
// Credentials can be validated against STS, written out as a
// credential_process payload or into a named profile in the shared
// credentials file, and kept in the OS secret store keyed by account/role.
package credentialexchange
