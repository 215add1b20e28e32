package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// resourceInfo is the structured output of the resources command.
type resourceInfo struct {
	Name      string `json:"name"      yaml:"name"`
	Title     string `json:"title"     yaml:"title"`
	Link      string `json:"link"      yaml:"link"`
	Indexable bool   `json:"indexable" yaml:"indexable"`
}

// NewResourcesCommand creates the resources command.
func NewResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "resources",
		Aliases: []string{"res"},
		Short:   "List discovered resources",
		Long:    "Display every resource the API advertises plus the built-in ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				infos := make([]resourceInfo, 0, len(s.gateway.Resources()))
				for _, resource := range s.gateway.Resources() {
					infos = append(infos, resourceInfo{
						Name:      resource.Name(),
						Title:     resource.Title(),
						Link:      resource.Link(),
						Indexable: resource.Indexable(),
					})
				}

				handled, err := encodeStructured(cmd.OutOrStdout(), infos)
				if handled {
					return err
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Name", "Title", "Link", "Indexable")

				for _, info := range infos {
					_ = table.Append([]string{info.Name, info.Title, info.Link, strconv.FormatBool(info.Indexable)})
				}

				err = table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		where    string
		embedded string
		options  string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "list RESOURCE",
		Short: "List rows of a resource",
		Long: `List the rows of a resource. --where and --embedded take a JSON object;
--options is appended to the query verbatim (e.g. "max_results=10&sort=-_created").
--where, --embedded and --all cannot be combined.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				resource, err := s.gateway.Resource(args[0])
				if err != nil {
					return err
				}

				entities, err := listEntities(ctx, resource, where, embedded, options, all)
				if err != nil {
					return err
				}

				return renderEntities(cmd.OutOrStdout(), entities)
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "filter as a JSON object")
	cmd.Flags().StringVar(&embedded, "embedded", "", "embedding directives as a JSON object")
	cmd.Flags().StringVar(&options, "options", "", "raw query options")
	cmd.Flags().BoolVar(&all, "all", false, "follow next links and fetch every page")
	cmd.MarkFlagsMutuallyExclusive("where", "embedded", "all")

	return cmd
}

func listEntities(ctx context.Context, resource *wenu.Resource, where, embedded, options string, all bool) ([]*wenu.Entity, error) {
	switch {
	case where != "":
		filters, err := parseObject("where", where)
		if err != nil {
			return nil, err
		}

		return resource.Where(ctx, filters, options).Collect()
	case embedded != "":
		directives, err := parseObject("embedded", embedded)
		if err != nil {
			return nil, err
		}

		return resource.Embedded(ctx, directives, options).Collect()
	case all:
		return resource.ListAll(ctx, options)
	default:
		return resource.List(ctx, options)
	}
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var options string

	cmd := &cobra.Command{
		Use:   "get RESOURCE ID",
		Short: "Get a row by id",
		Long:  "Fetch a single row of an indexable resource",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				resource, err := s.gateway.Resource(args[0])
				if err != nil {
					return err
				}

				entity, err := resource.GetByID(ctx, args[1], options)
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), entity.Fields())
			})
		},
	}

	cmd.Flags().StringVar(&options, "options", "", "raw query options")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create RESOURCE [FIELD=VALUE...]",
		Short: "Create a row",
		Long: `Create a row from FIELD=VALUE pairs and/or a --data JSON object. Values
that parse as JSON keep their type; anything else is sent as a string.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseData(data)
			if err != nil {
				return err
			}

			err = applyAssignments(args[1:], func(name string, value interface{}) error {
				fields[name] = value

				return nil
			})
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, s *session) error {
				resource, err := s.gateway.Resource(args[0])
				if err != nil {
					return err
				}

				resp, err := resource.New(fields).Create(ctx)
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "row as a JSON object")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "update RESOURCE ID FIELD=VALUE...",
		Short: "Update a row",
		Long: `Fetch a row, change fields and save it conditionally on its etag. Only
existing fields can be set unless --add is given.`,
		Args: cobra.MinimumNArgs(constants.MinimumArgumentCount + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				resource, err := s.gateway.Resource(args[0])
				if err != nil {
					return err
				}

				entity, err := resource.GetByID(ctx, args[1], "")
				if err != nil {
					return err
				}

				err = applyAssignments(args[2:], func(name string, value interface{}) error {
					if add {
						entity.PutField(name, value)

						return nil
					}

					return entity.SetField(name, value)
				})
				if err != nil {
					return err
				}

				resp, err := entity.Save(ctx)
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "allow adding fields the row does not have")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESOURCE ID",
		Short: "Delete a row",
		Long:  "Fetch a row and delete it conditionally on its etag",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				resource, err := s.gateway.Resource(args[0])
				if err != nil {
					return err
				}

				entity, err := resource.GetByID(ctx, args[1], "")
				if err != nil {
					return err
				}

				_, err = entity.Remove(ctx)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", resource.Name(), args[1])

				return nil
			})
		},
	}
}

func parseObject(flag, raw string) (wenu.Fields, error) {
	var fields wenu.Fields

	err := json.Unmarshal([]byte(raw), &fields)
	if err != nil || fields == nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", flag, constants.ErrInvalidFlag)
	}

	return fields, nil
}

func parseData(raw string) (wenu.Fields, error) {
	if raw == "" {
		return wenu.Fields{}, nil
	}

	return parseObject("data", raw)
}

// applyAssignments parses FIELD=VALUE pairs and hands each to set.
func applyAssignments(assignments []string, set func(name string, value interface{}) error) error {
	for _, assignment := range assignments {
		name, raw, ok := strings.Cut(assignment, "=")
		if !ok || name == "" {
			return fmt.Errorf("%q: %w", assignment, constants.ErrInvalidAssignment)
		}

		err := set(name, parseValue(raw))
		if err != nil {
			return err
		}
	}

	return nil
}

// parseValue decodes raw as JSON and falls back to the raw string.
func parseValue(raw string) interface{} {
	var value interface{}

	err := json.Unmarshal([]byte(raw), &value)
	if err != nil {
		return raw
	}

	return value
}
