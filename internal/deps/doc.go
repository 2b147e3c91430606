// Package deps resolves the external binaries the converter shells out to.
package deps
