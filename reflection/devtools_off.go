//go:build !devtools

package reflection

// DevelopmentTools reports whether the binary was built with the devtools tag.
// Generated code registers development-only members only when it is set.
const DevelopmentTools = false
