package cmd

import (
	"log/slog"

	"github.com/reliefops/aidflow/pkg/executors/assign"
	"github.com/reliefops/aidflow/pkg/executors/createtask"
	"github.com/reliefops/aidflow/pkg/executors/notify"
	"github.com/reliefops/aidflow/pkg/executors/wait"
	"github.com/reliefops/aidflow/pkg/protocol"
	"github.com/reliefops/aidflow/pkg/registry"
)

// Collaborators bundles the external services the step executors call.
type Collaborators struct {
	Tasks         protocol.TaskService
	Users         protocol.UserService
	Notifications protocol.NotificationService
}

// NewRegistry builds the executor registry with every native step kind.
func NewRegistry(logger *slog.Logger, collaborators Collaborators) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(createtask.NewFactory(collaborators.Tasks))
	reg.Register(notify.NewFactory(collaborators.Users, collaborators.Notifications))
	reg.Register(assign.NewFactory(collaborators.Tasks, collaborators.Users))
	reg.Register(wait.NewFactory())

	return reg
}
