// Package loader mounts optional HTTP features on the fiber app.
//
// A feature reports a name, whether it is enabled, and registers its routes in
// Load. The Manager keeps registration order, skips disabled features, and stops
// at the first Load error:
//
//	mgr := loader.NewManager()
//	mgr.Register(possync.NewFeature(service))
//	if err := mgr.LoadAll(app); err != nil { ... }
//
// Enabled lists the names that were mounted, for the startup log.
package loader
