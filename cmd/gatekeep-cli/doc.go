// Package main provides the entry point for gatekeep-cli.
//
// Usage:
//
//	gatekeep-cli token issue --secret "$NORDLYS_SECRET" --ttl 24h
//	gatekeep-cli token verify --secret "$NORDLYS_SECRET" TOKEN
//	gatekeep-cli password hash < password.txt
//	gatekeep-cli -s https://site.example session check --cookie TOKEN
package main
