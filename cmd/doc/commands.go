package doc

import (
	"encoding/json"
	"fmt"

	"github.com/hyperio-mc/hyper/cmd/util"
	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/spf13/cobra"
)

var (
	nsCreateCmd = &cobra.Command{
		Use:   "ns-create [alias]",
		Short: "Creates a new namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.CreateNamespace(args[0]); err != nil {
				return err
			}
			fmt.Println("namespace created")
			return nil
		},
	}
	nsRemoveCmd = &cobra.Command{
		Use:   "ns-remove [alias]",
		Short: "Removes a namespace and all its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.RemoveNamespace(args[0]); err != nil {
				return err
			}
			fmt.Println("namespace removed")
			return nil
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [namespace] [id] [json]",
		Short: "Creates a new document, fails if the id already exists",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseDocument(args[2])
			if err != nil {
				return err
			}
			id, err := rpcStore.CreateDocument(args[0], args[1], body)
			if err != nil {
				return err
			}
			fmt.Printf("created document %s\n", id)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [namespace] [id]",
		Short: "Retrieves a document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := rpcStore.RetrieveDocument(args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(doc)
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [namespace] [id] [json]",
		Short: "Writes a document, creating it if it does not exist",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseDocument(args[2])
			if err != nil {
				return err
			}
			id, err := rpcStore.UpdateDocument(args[0], args[1], body)
			if err != nil {
				return err
			}
			fmt.Printf("updated document %s\n", id)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [namespace] [id]",
		Short: "Removes a document by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := rpcStore.RemoveDocument(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("removed document %s\n", id)
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [namespace]",
		Short: "Lists documents in id order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := docstore.ListOptions{
				StartKey:   listStartKey,
				EndKey:     listEndKey,
				Limit:      listLimit,
				Descending: listDescending,
			}
			if len(listKeys) > 0 {
				opts.Keys = listKeys
			}
			docs, err := rpcStore.ListDocuments(args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(docs)
		},
	}
	queryCmd = &cobra.Command{
		Use:   "query [namespace] [json-query]",
		Short: "Queries documents with a selector",
		Long:  `Queries documents with a declarative JSON query, e.g. '{"selector":{"age":{"$gte":30}},"sort":[{"age":"desc"}],"limit":10}'`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query docstore.Query
			if err := json.Unmarshal([]byte(args[1]), &query); err != nil {
				return fmt.Errorf("invalid query: %v", err)
			}
			docs, err := rpcStore.QueryDocuments(args[0], query)
			if err != nil {
				return err
			}
			return printJSON(docs)
		},
	}
	indexCmd = &cobra.Command{
		Use:   "index [namespace] [name] [field]...",
		Short: "Registers an index definition for a namespace",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var partialFilter map[string]any
			if indexPartialFilter != "" {
				if err := json.Unmarshal([]byte(indexPartialFilter), &partialFilter); err != nil {
					return fmt.Errorf("invalid partial filter: %v", err)
				}
			}
			if err := rpcStore.IndexDocuments(args[0], args[1], args[2:], partialFilter); err != nil {
				return err
			}
			fmt.Printf("registered index %s\n", args[1])
			return nil
		},
	}
	bulkCmd = &cobra.Command{
		Use:   "bulk [namespace] [json-array]",
		Short: "Writes a batch of documents atomically",
		Long:  `Writes a batch of documents in a single atomic commit. Each document must carry its id in the "_id" field, e.g. '[{"_id":"u1","name":"ada"},{"_id":"u2","name":"bob"}]'`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var docs []docstore.Document
			if err := json.Unmarshal([]byte(args[1]), &docs); err != nil {
				return fmt.Errorf("invalid document batch: %v", err)
			}
			results, err := rpcStore.BulkDocuments(args[0], docs)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}

	// list flags
	listStartKey   string
	listEndKey     string
	listKeys       []string
	listLimit      int
	listDescending bool

	// index flags
	indexPartialFilter string
)

func init() {
	listCmd.Flags().StringVar(&listStartKey, "start", "", util.WrapString("First id to include (inclusive)"))
	listCmd.Flags().StringVar(&listEndKey, "end", "", util.WrapString("Last id to include (inclusive)"))
	listCmd.Flags().StringSliceVar(&listKeys, "keys", nil, util.WrapString("Restrict the listing to these ids"))
	listCmd.Flags().IntVar(&listLimit, "limit", 0, util.WrapString("Maximum number of documents to return (0 for no limit)"))
	listCmd.Flags().BoolVar(&listDescending, "desc", false, util.WrapString("Return documents in reverse id order"))

	indexCmd.Flags().StringVar(&indexPartialFilter, "partial-filter", "", util.WrapString("Optional JSON selector restricting the index to matching documents"))
}

// parseDocument parses a JSON object from the command line
func parseDocument(raw string) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid document: %v", err)
	}
	return doc, nil
}

// printJSON pretty-prints a value as indented JSON
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
