package echoapi

import (
	"io"
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/vision"
)

const (
	// maxImageSize bounds the uploaded attendance photo.
	maxImageSize = 10 << 20
	// maxBodySize bounds any request body: one photo plus the multipart framing.
	maxBodySize = "11M"
)

type attendanceApi struct {
	svc      attendance.ServiceInterface
	matcher  *vision.Matcher
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	svc attendance.ServiceInterface,
	matcher *vision.Matcher,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		matcher:  matcher,
		validate: validate,
	}

	ag := g.Group("/attendance/sessions")
	ag.POST("", api.takeAttendance)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/records", api.records)
	dg.POST("/commit", api.commit)
	dg.POST("/extract", api.extract)
}

type (
	SessionResponse struct {
		Session attendance.Session  `json:"session"`
		Records []attendance.Record `json:"records"`
	}

	CommitRequest struct {
		// Changes maps record ids to their new presence.
		Changes   map[string]bool `json:"changes"`
		Confirmed bool            `json:"confirmed"`
	}

	ConfirmationRequired struct {
		Error string `json:"error"`
		Count int    `json:"count"`
	}

	SaveFailureResponse struct {
		Error   string              `json:"error"`
		Failed  []string            `json:"failed"`
		Records []attendance.Record `json:"records"`
	}

	ExtractResponse struct {
		Proposal *vision.Proposal      `json:"proposal"`
		Staged   attendance.StageResult `json:"staged"`
		Changes  map[string]bool       `json:"changes"`
		Records  []attendance.Record   `json:"records"`
	}
)

// Handlers

func (api *attendanceApi) takeAttendance(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, records, err := api.svc.TakeAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "taking attendance")
	}
	return ctx.JSON(http.StatusCreated, SessionResponse{Session: sess, Records: records})
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	records, err := api.svc.Records(ctx.Request().Context(), sess.ID)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Session: sess, Records: records})
}

func (api *attendanceApi) records(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	records, err := api.svc.Records(ctx.Request().Context(), sess.ID)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) commit(ctx echo.Context) error {
	var data CommitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CommitRequest")
	}

	engine, err := api.svc.Engine(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "loading session")
	}

	ids := make([]string, 0, len(data.Changes))
	for id := range data.Changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err = engine.Toggle(id, data.Changes[id]); err != nil {
			if errors.Cause(err) == attendance.ErrUnknownRecord {
				return core.NewFieldValidationError("changes", "record "+id+" does not belong to this session")
			}
			return errors.Wrap(err, "toggling record")
		}
	}

	var count int
	res, err := engine.Commit(ctx.Request().Context(), func(n int) bool {
		count = n
		return data.Confirmed
	})
	if err != nil {
		if sf, ok := errors.Cause(err).(*attendance.SaveFailure); ok {
			return ctx.JSON(http.StatusInternalServerError, SaveFailureResponse{
				Error:   sf.Error(),
				Failed:  sf.Failed,
				Records: engine.Records(),
			})
		}
		if errors.Cause(err) == attendance.ErrCommitDeclined {
			return ctx.JSON(http.StatusPreconditionRequired, ConfirmationRequired{
				Error: "confirmation required",
				Count: count,
			})
		}
		return errors.Wrap(err, "committing attendance")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) extract(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	sess, err := api.svc.GetSession(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session")
	}

	fh, err := ctx.FormFile("image")
	if err != nil {
		return core.NewFieldValidationError("image", "image is required")
	}
	if fh.Size > maxImageSize {
		return core.NewFieldValidationError("image", "image must not exceed 10MB")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening image")
	}
	defer func() { _ = f.Close() }()
	img, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading image")
	}
	mimeType := fh.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(img)
	}

	targetDate := sess.Date
	if val := ctx.FormValue("date"); val != "" {
		if targetDate, err = parseDate("date", val); err != nil {
			return err
		}
	}

	students, err := api.svc.Roster(reqCtx, sess.ClassID)
	if err != nil {
		return errors.Wrap(err, "getting roster")
	}

	proposal, err := api.matcher.Extract(reqCtx, vision.ExtractRequest{
		Image:      img,
		MimeType:   mimeType,
		Roster:     students,
		TargetDate: targetDate,
	})
	if err != nil {
		return errors.Wrap(err, "extracting attendance")
	}

	engine, err := api.svc.Engine(reqCtx, sess.ID)
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	staged, err := engine.StageProposal(proposal)
	if err != nil {
		return errors.Wrap(err, "staging proposal")
	}

	return ctx.JSON(http.StatusOK, ExtractResponse{
		Proposal: proposal,
		Staged:   staged,
		Changes:  engine.ChangeSet(),
		Records:  engine.Records(),
	})
}
