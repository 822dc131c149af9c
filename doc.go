// Package main provides the entry point of cernauth, a web service that signs
// users in with their CERN account. It runs the OAuth round trip against the
// CERN OAuth service, links the remote account to a local user stored with
// gorm, and turns the user's e-groups into role claims kept in the session.
// When the resource API is unavailable, user data is read from the CERN LDAP
// directory.
package main
