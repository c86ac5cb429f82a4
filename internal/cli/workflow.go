package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/n8n-deploy/internal/config"
	"github.com/shaiso/n8n-deploy/internal/n8n"
	"github.com/shaiso/n8n-deploy/internal/telemetry"
)

// workflowView — workflow со ссылкой на редактор, для вывода.
type workflowView struct {
	n8n.Workflow
	URL string `json:"url"`
}

func newWorkflowView(client *n8n.Client, wf n8n.Workflow) workflowView {
	return workflowView{Workflow: wf, URL: client.WorkflowURL(wf.ID)}
}

// toggleResult — JSON вывод activate/deactivate.
type toggleResult struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// NewDeployCmd создаёт команду деплоя документа workflow.
func NewDeployCmd(clientFn func() *n8n.Client, outputFn func() *Output, configFn func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy [FILE]",
		Short: "Deploy a workflow document (default: bug investigation template)",
		Long: `Deploy a workflow document to n8n.

FILE is a JSON or YAML workflow export. Relative paths are resolved against
--workflow-dir (N8N_WORKFLOW_DIR). Without FILE the default workflow
(N8N_DEFAULT_WORKFLOW) is deployed. Every deploy creates a new workflow.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return newUsageError(cmd, "deploy accepts at most one file, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFn()
			client := clientFn()
			out := outputFn()
			logger := telemetry.FromContext(cmd.Context())

			path := cfg.DefaultWorkflow
			if len(args) == 1 {
				path = args[0]
			}

			doc, err := n8n.LoadDocument(cfg.WorkflowDir, path)
			if err != nil {
				return err
			}

			logger.Info("deploying workflow", "name", doc.Name(), "path", path)
			out.Info("Deploying workflow %q to %s...", doc.Name(), client.BaseURL())

			wf, err := client.Deploy(cmd.Context(), doc)
			if err != nil {
				return err
			}

			out.Info("Workflow deployed successfully")
			view := newWorkflowView(client, *wf)
			if out.JSONMode() {
				return out.JSON(view)
			}
			return out.Workflows([]workflowView{view})
		},
	}
}

// NewListCmd создаёт команду списка workflows.
func NewListCmd(clientFn func() *n8n.Client, outputFn func() *Output) *cobra.Command {
	var active string
	var name string
	var tags []string
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List existing workflows",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return newUsageError(cmd, "list takes no arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			opts := n8n.ListOptions{
				Name:   name,
				Tags:   tags,
				Limit:  limit,
				Cursor: cursor,
			}
			if cmd.Flags().Changed("active") {
				b, err := strconv.ParseBool(active)
				if err != nil {
					return newUsageError(cmd, "invalid value for --active: %s", active)
				}
				opts.Active = &b
			}

			page, err := client.ListPage(cmd.Context(), opts)
			if err != nil {
				return err
			}

			views := make([]workflowView, len(page.Workflows))
			for i, wf := range page.Workflows {
				views[i] = newWorkflowView(client, wf)
			}

			if len(views) == 0 {
				out.Info("No workflows found")
				if out.JSONMode() {
					return out.JSON(views)
				}
				return nil
			}

			if err := out.Workflows(views); err != nil {
				return err
			}
			if page.NextCursor != "" {
				out.Info("More workflows available, continue with: --cursor %s", page.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&active, "active", "", "Filter by active status (true/false)")
	cmd.Flags().StringVar(&name, "name", "", "Filter by workflow name")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Filter by tags (comma separated)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from a previous list")

	return cmd
}

// NewActivateCmd создаёт команду активации workflow.
func NewActivateCmd(clientFn func() *n8n.Client, outputFn func() *Output) *cobra.Command {
	return newToggleCmd(true, clientFn, outputFn)
}

// NewDeactivateCmd создаёт команду деактивации workflow.
func NewDeactivateCmd(clientFn func() *n8n.Client, outputFn func() *Output) *cobra.Command {
	return newToggleCmd(false, clientFn, outputFn)
}

func newToggleCmd(active bool, clientFn func() *n8n.Client, outputFn func() *Output) *cobra.Command {
	action, short := n8n.OpDeactivate, "Deactivate a workflow by ID"
	if active {
		action, short = n8n.OpActivate, "Activate a workflow by ID"
	}

	return &cobra.Command{
		Use:   action + " ID",
		Short: short,
		Args:  requireWorkflowID,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()
			id := strings.TrimSpace(args[0])
			logger := telemetry.WithWorkflowID(telemetry.FromContext(cmd.Context()), id)

			logger.Info("changing workflow state", "active", active)
			if err := client.SetActive(cmd.Context(), id, active); err != nil {
				return err
			}

			out.Info("Workflow %s %sd successfully", id, action)
			if out.JSONMode() {
				return out.JSON(toggleResult{ID: id, Active: active})
			}
			return nil
		},
	}
}

func requireWorkflowID(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return newUsageError(cmd, "workflow ID required for %s command", cmd.Name())
	}
	if len(args) > 1 {
		return newUsageError(cmd, "%s accepts one workflow ID, got %d", cmd.Name(), len(args))
	}
	return nil
}
