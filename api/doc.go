// Package api exposes member search over HTTP with gin.
package api
