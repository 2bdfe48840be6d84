package rowcheck

import (
	"net/rpc"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/pkg/errors"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "ROWCHECK_PLUGIN",
	MagicCookieValue: "rowcheck",
}

const VALIDATOR_PLUGIN = "validator"

var pluginMap = map[string]plugin.Plugin{
	VALIDATOR_PLUGIN: &ValidatorPlugin{},
}

// Errors do not keep their type over RPC. The kind travels next to the
// message instead
type ValidateReply struct {
	Kind    Kind
	Message string
}

type validatorRPC struct {
	client *rpc.Client
}

func (g *validatorRPC) Validate(row Row) error {
	var reply ValidateReply
	if err := g.client.Call("Plugin.Validate", row, &reply); err != nil {
		return errors.Wrap(err, "plugin call failed")
	}

	switch reply.Kind {
	case "":
		return nil
	case DECODING_ROW_INVALID:
		return &DecodeError{errors.New(reply.Message)}
	default:
		return errors.New(reply.Message)
	}
}

type ValidatorRPCServer struct {
	Impl Validator
}

func (s *ValidatorRPCServer) Validate(row Row, reply *ValidateReply) error {
	err := s.Impl.Validate(row)
	if err == nil {
		*reply = ValidateReply{}
		return nil
	}

	rerr := newRowError(0, row, err)
	*reply = ValidateReply{Kind: rerr.Kind, Message: rerr.Err.Error()}
	return nil
}

type ValidatorPlugin struct {
	Impl Validator
}

func (p *ValidatorPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ValidatorRPCServer{Impl: p.Impl}, nil
}

func (p *ValidatorPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &validatorRPC{client: c}, nil
}

// ServeValidator is called from the main of a plugin binary. It blocks
// until the host process goes away
func ServeValidator(v Validator) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			VALIDATOR_PLUGIN: &ValidatorPlugin{Impl: v},
		},
	})
}

// Starts the plugin binary at fpath. The returned function kills it
func LoadPlugin(fpath string) (Validator, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          pluginMap,
		Cmd:              exec.Command(fpath),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   "plugin",
			Output: os.Stderr,
			Level:  hclog.Warn,
		}),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, errors.Wrapf(err, "failed to start plugin %s", fpath)
	}

	raw, err := rpcClient.Dispense(VALIDATOR_PLUGIN)
	if err != nil {
		client.Kill()
		return nil, nil, errors.Wrapf(err, "failed to dispense plugin %s", fpath)
	}

	v, ok := raw.(Validator)
	if !ok {
		client.Kill()
		return nil, nil, errors.Errorf("plugin %s does not serve a validator", fpath)
	}
	return v, client.Kill, nil
}
