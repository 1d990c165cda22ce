package client

import (
	"fmt"
	"net/http"

	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/lib/logger"
	"github.com/hyperio-mc/hyper/rpc/common"
	"github.com/hyperio-mc/hyper/rpc/serializer"
	"github.com/hyperio-mc/hyper/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// kindOfStatus maps a response status code back to an error kind.
// Unknown codes are treated as engine failures.
func kindOfStatus(status int) docstore.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return docstore.KindBadRequest
	case http.StatusNotFound:
		return docstore.KindNotFound
	case http.StatusConflict:
		return docstore.KindConflict
	default:
		return docstore.KindEngine
	}
}

// invokeRPCRequest is a helper function used by all client methods to send requests
// It takes a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// A not-ok response is converted back into a typed docstore error so that the
// remote store behaves like a local one
func invokeRPCRequest(req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("RPC DocStoreClient - Error: %s", err)
	}

	// A failed operation carries its status and message in the envelope
	if resp.MsgType == common.MsgTError || !resp.Ok {
		return nil, docstore.NewError(kindOfStatus(resp.Status), resp.Err)
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC DocStoreClient - Unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
