// Package handlers implements the JSON endpoints of the pagepress dev server:
// pipeline status, the revision journal and decoded theme artifacts.
package handlers
