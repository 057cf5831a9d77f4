package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/taoreta-ed/redes2-25-2/internal/apperror"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

// maxBoardSide bounds the rows and columns a configuration may announce.
const maxBoardSide = 64

// Type is the value of the "tipo" tag carried by every frame.
type Type string

const (
	TypeConfiguration Type = "configuracion"
	TypeCoordinate    Type = "coordenada"
	TypeFlag          Type = "bandera"
	TypeControl       Type = "control"
	TypeEnd           Type = "fin"
	TypeDisconnect    Type = "desconexion"
)

// Message is one of the six frame shapes of the protocol.
type Message interface {
	Type() Type
	isMessage()
}

// Configuration is sent once by the server right after accept.
type Configuration struct {
	Difficulty entity.Difficulty `json:"dificultad"`
	Rows       int               `json:"filas"`
	Cols       int               `json:"columnas"`
	Mines      int               `json:"minas"`
}

// Coordinate asks the server to reveal a cell.
type Coordinate struct {
	Row int `json:"fila"`
	Col int `json:"columna"`
}

// Flag asks the server to place or remove a flag.
type Flag struct {
	Row    int               `json:"fila"`
	Col    int               `json:"columna"`
	Action entity.FlagAction `json:"accion"`
}

// End closes a game with its result and duration in seconds.
type End struct {
	Result   entity.Outcome `json:"resultado"`
	Duration int64          `json:"duracion"`
}

// Disconnect is the client's graceful close request.
type Disconnect struct{}

func (Configuration) Type() Type { return TypeConfiguration }
func (Coordinate) Type() Type    { return TypeCoordinate }
func (Flag) Type() Type          { return TypeFlag }
func (Control) Type() Type       { return TypeControl }
func (End) Type() Type           { return TypeEnd }
func (Disconnect) Type() Type    { return TypeDisconnect }

func (Configuration) isMessage() {}
func (Coordinate) isMessage()    {}
func (Flag) isMessage()          {}
func (Control) isMessage()       {}
func (End) isMessage()           {}
func (Disconnect) isMessage()    {}

func (that Configuration) MarshalJSON() ([]byte, error) {
	type alias Configuration
	return json.Marshal(struct {
		Type Type `json:"tipo"`
		alias
	}{TypeConfiguration, alias(that)})
}

func (that Coordinate) MarshalJSON() ([]byte, error) {
	type alias Coordinate
	return json.Marshal(struct {
		Type Type `json:"tipo"`
		alias
	}{TypeCoordinate, alias(that)})
}

func (that Flag) MarshalJSON() ([]byte, error) {
	type alias Flag
	return json.Marshal(struct {
		Type Type `json:"tipo"`
		alias
	}{TypeFlag, alias(that)})
}

func (that End) MarshalJSON() ([]byte, error) {
	type alias End
	return json.Marshal(struct {
		Type Type `json:"tipo"`
		alias
	}{TypeEnd, alias(that)})
}

func (that Disconnect) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Type `json:"tipo"`
	}{TypeDisconnect})
}

func (that *Configuration) UnmarshalJSON(data []byte) error {
	var wire struct {
		Difficulty *entity.Difficulty `json:"dificultad"`
		Rows       *int               `json:"filas"`
		Cols       *int               `json:"columnas"`
		Mines      *int               `json:"minas"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if err := required(
		field{"dificultad", wire.Difficulty != nil},
		field{"filas", wire.Rows != nil},
		field{"columnas", wire.Cols != nil},
		field{"minas", wire.Mines != nil},
	); err != nil {
		return err
	}

	*that = Configuration{Difficulty: *wire.Difficulty, Rows: *wire.Rows, Cols: *wire.Cols, Mines: *wire.Mines}

	return nil
}

func (that *Coordinate) UnmarshalJSON(data []byte) error {
	var wire struct {
		Row *int `json:"fila"`
		Col *int `json:"columna"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if err := required(field{"fila", wire.Row != nil}, field{"columna", wire.Col != nil}); err != nil {
		return err
	}

	*that = Coordinate{Row: *wire.Row, Col: *wire.Col}

	return nil
}

func (that *Flag) UnmarshalJSON(data []byte) error {
	var wire struct {
		Row    *int               `json:"fila"`
		Col    *int               `json:"columna"`
		Action *entity.FlagAction `json:"accion"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if err := required(
		field{"fila", wire.Row != nil},
		field{"columna", wire.Col != nil},
		field{"accion", wire.Action != nil},
	); err != nil {
		return err
	}

	*that = Flag{Row: *wire.Row, Col: *wire.Col, Action: *wire.Action}

	return nil
}

func (that *End) UnmarshalJSON(data []byte) error {
	var wire struct {
		Result   *entity.Outcome `json:"resultado"`
		Duration *int64          `json:"duracion"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if err := required(field{"resultado", wire.Result != nil}, field{"duracion", wire.Duration != nil}); err != nil {
		return err
	}

	*that = End{Result: *wire.Result, Duration: *wire.Duration}

	return nil
}

// field is a wire field name and whether the frame carried it.
type field struct {
	name    string
	present bool
}

func required(fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("missing field %q", f.name)
		}
	}

	return nil
}

// NewConfiguration - configuration frame for a difficulty profile.
func NewConfiguration(difficulty entity.Difficulty, profile entity.Profile) Configuration {
	return Configuration{
		Difficulty: difficulty,
		Rows:       profile.Rows,
		Cols:       profile.Cols,
		Mines:      profile.Mines,
	}
}

type envelope struct {
	Type Type `json:"tipo"`
}

// Decode - parses one frame payload, dispatching on its "tipo" tag.
func Decode(payload []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrFrame, err)
	}

	var (
		msg Message
		err error
	)

	switch env.Type {
	case TypeConfiguration:
		msg, err = decodeAs[Configuration](payload)
	case TypeCoordinate:
		msg, err = decodeAs[Coordinate](payload)
	case TypeFlag:
		msg, err = decodeAs[Flag](payload)
	case TypeControl:
		msg, err = decodeAs[Control](payload)
	case TypeEnd:
		msg, err = decodeAs[End](payload)
	case TypeDisconnect:
		msg = Disconnect{}
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", apperror.ErrFrame, env.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrFrame, env.Type, err)
	}

	if err = validate(msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrFrame, env.Type, err)
	}

	return msg, nil
}

func decodeAs[T Message](payload []byte) (T, error) {
	var msg T
	err := json.Unmarshal(payload, &msg)
	return msg, err
}

func validate(msg Message) error {
	switch m := msg.(type) {
	case Configuration:
		if _, err := m.Difficulty.Profile(); err != nil {
			return err
		}

		if m.Rows < 1 || m.Rows > maxBoardSide || m.Cols < 1 || m.Cols > maxBoardSide ||
			m.Mines < 0 || m.Mines >= m.Rows*m.Cols {
			return fmt.Errorf("impossible board %dx%d with %d mines", m.Rows, m.Cols, m.Mines)
		}
	case Flag:
		if !m.Action.IsValid() {
			return fmt.Errorf("unknown flag action %q", m.Action)
		}
	case End:
		if m.Result != entity.OutcomeWin && m.Result != entity.OutcomeLoss {
			return fmt.Errorf("unknown result %q", m.Result)
		}
	case Control:
		if !m.Status.IsValid() {
			return fmt.Errorf("unknown control status %q", m.Status)
		}

		if m.Status == StatusFree && (m.Value < 0 || m.Value > 8) {
			return fmt.Errorf("adjacent count %d out of range", m.Value)
		}
	}

	return nil
}
