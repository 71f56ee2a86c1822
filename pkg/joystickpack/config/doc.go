/*
Package config loads joystickpack settings from YAML or JSON files.

# Overview

A settings file has three sections. Any field left out keeps its value from
Default:

	subject:
	  max_observers: 8
	  error_strategy: log      # throw, log or ignore
	  async_errors: report     # discard or report
	  enable_metrics: true
	joystick:
	  radius: 60
	  mode: follow             # dynamic or follow
	  lerp_speed: 0.2
	logging:
	  level: debug
	  format: json

# Loading

	s, err := config.FromFile("joystick.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	logger := config.NewLogger(os.Stderr, s.Logging)
	subjectCfg, _ := s.Subject.SubjectConfig(logger)

Loading validates every section and reports all problems in one error.

# Hot Reload

Loader watches a file with fsnotify and publishes KeyReloaded on its event
subject after each successful reload. A file that fails to parse or validate
leaves the previous settings in place and publishes KeyReloadFailed instead.

	loader, err := config.NewLoader("joystick.yaml")
	stop, err := loader.Watch(ctx)
	defer stop()

	loader.OnChange(func(ctx context.Context, s config.Settings) error {
	    return stick.Configure(s.Joystick)
	})
*/
package config
