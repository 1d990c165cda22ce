package doc

import (
	"github.com/hyperio-mc/hyper/cmd/util"
	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcStore docstore.IDocStore

	// DocumentCommands represents the document command group
	DocumentCommands = &cobra.Command{
		Use:               "doc",
		Short:             "Perform document store operations",
		PersistentPreRunE: setupDocClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the document command
	util.SetupRPCClientFlags(DocumentCommands)

	// Add subcommands
	DocumentCommands.AddCommand(nsCreateCmd)
	DocumentCommands.AddCommand(nsRemoveCmd)
	DocumentCommands.AddCommand(createCmd)
	DocumentCommands.AddCommand(getCmd)
	DocumentCommands.AddCommand(updateCmd)
	DocumentCommands.AddCommand(delCmd)
	DocumentCommands.AddCommand(listCmd)
	DocumentCommands.AddCommand(queryCmd)
	DocumentCommands.AddCommand(indexCmd)
	DocumentCommands.AddCommand(bulkCmd)
	DocumentCommands.AddCommand(perfTestCmd)
}

// setupDocClient initializes the RPC document store client
func setupDocClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the document store client
	rpcStore, err = client.NewRPCDocStore(
		*config,
		t,
		s,
	)

	return err
}
