// Package util holds small helpers shared by the router packages:
// request-scoped context values, the common error types and path
// normalization.
//
//	ctx = util.ContextWithMount(ctx, "/docs")
//	mount := util.MountFromContext(ctx)
package util
