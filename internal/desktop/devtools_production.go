//go:build production

package desktop

const devToolsAvailable = false
