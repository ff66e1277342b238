package echoapi

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// sonicJSONSerializer implements echo.JSONSerializer with sonic.
type sonicJSONSerializer struct{}

var _ echo.JSONSerializer = sonicJSONSerializer{}

func (sonicJSONSerializer) Serialize(ctx echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(ctx.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicJSONSerializer) Deserialize(ctx echo.Context, i interface{}) error {
	err := sonic.ConfigStd.NewDecoder(ctx.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}
