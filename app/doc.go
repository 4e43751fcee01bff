// Package app composes the application before control is handed to the
// host event loop.
//
// A Builder collects an ordered list of plugins and at most one setup
// hook, then Run consumes it:
//
//	err := app.New(app.WithHost(h), app.WithName("lumison")).
//	    Setup(func(c *app.Context) error {
//	        win, err := c.MainWindow()
//	        if err != nil {
//	            return err
//	        }
//	        return win.OpenDevtools()
//	    }).
//	    Plugin(updater.New(cfg.Updater)).
//	    Plugin(process.New()).
//	    Run(ctx)
//
// Run builds the runtime through the host, initializes plugins in
// registration order, runs the setup hook once, starts background plugin
// work and blocks in the event loop. A plugin or setup failure aborts
// startup before the loop is entered.
package app
