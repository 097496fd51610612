package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tneregistro/portal/core"
	"github.com/tneregistro/portal/core/roster"
	"github.com/tneregistro/portal/core/session"
	"github.com/tneregistro/portal/core/stats"
	"github.com/tneregistro/portal/services/tneapi"
)

const (
	defaultWidth = 100
	minNameWidth = 12
)

var (
	termSizeFunc = term.GetSize // mockable

	errHelp           = errors.New("help provided")
	errLoginRequired  = errors.New("no has iniciado sesión: usa `tnectl login -email CORREO`")
	errRoleNotAllowed = errors.New("tu rol no tiene acceso a este comando")
)

// backend is what the CLI needs from the delivery backend.
type backend interface {
	roster.Client
	stats.Client
	Login(ctx context.Context, email string) (tneapi.LoginResult, error)
	DownloadReport(ctx context.Context) (*tneapi.Report, error)
}

type loginInput struct {
	Email string `json:"email" validate:"required,email"`
}

type commandLine struct {
	backend    backend
	sessions   session.Store
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                              - log in with an authorized email")
	fmt.Fprintln(cli.out, "  logout                                          - forget the saved session")
	fmt.Fprintln(cli.out, "  whoami                                          - show the saved session")
	fmt.Fprintln(cli.out, "  alumnos [-q TEXT]                               - list students, optionally filtered")
	fmt.Fprintln(cli.out, "  entregar -folio FOLIO|-rut RUT -responsable NAME - register a card delivery")
	fmt.Fprintln(cli.out, "  stats                                           - show delivery statistics (admin)")
	fmt.Fprintln(cli.out, "  reporte [-o FILE]                               - download the Excel report (admin)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	loginCmd := cli.newFlagSet("login")
	loginEmail := loginCmd.String("email", "", "The authorized email.")

	logoutCmd := cli.newFlagSet("logout")
	whoamiCmd := cli.newFlagSet("whoami")

	alumnosCmd := cli.newFlagSet("alumnos")
	alumnosQuery := alumnosCmd.String("q", "", "Filter by folio, RUT or name.")

	entregarCmd := cli.newFlagSet("entregar")
	entregarFolio := entregarCmd.String("folio", "", "The student's folio.")
	entregarRUT := entregarCmd.String("rut", "", "The student's RUT, when there is no folio.")
	entregarResponsable := entregarCmd.String("responsable", "", "Who hands out the card.")

	statsCmd := cli.newFlagSet("stats")

	reporteCmd := cli.newFlagSet("reporte")
	reporteOut := reporteCmd.String("o", "", "Output file. Defaults to the name given by the backend.")

	switch args[1] {
	case "login":
		if err := parse(loginCmd, args[2:]); err != nil {
			return err
		}
		return cli.login(ctx, *loginEmail)
	case "logout":
		if err := parse(logoutCmd, args[2:]); err != nil {
			return err
		}
		return cli.logout()
	case "whoami":
		if err := parse(whoamiCmd, args[2:]); err != nil {
			return err
		}
		return cli.whoami()
	case "alumnos":
		if err := parse(alumnosCmd, args[2:]); err != nil {
			return err
		}
		return cli.listStudents(ctx, *alumnosQuery)
	case "entregar":
		if err := parse(entregarCmd, args[2:]); err != nil {
			return err
		}
		if *entregarFolio == "" && *entregarRUT == "" {
			entregarCmd.Usage()
			return errHelp
		}
		return cli.deliver(ctx, roster.DeliveryRequest{
			Folio:       *entregarFolio,
			RUT:         *entregarRUT,
			Responsable: *entregarResponsable,
		})
	case "stats":
		if err := parse(statsCmd, args[2:]); err != nil {
			return err
		}
		return cli.statistics(ctx)
	case "reporte":
		if err := parse(reporteCmd, args[2:]); err != nil {
			return err
		}
		return cli.report(ctx, *reporteOut)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// authorize applies the portal's route guard to the saved session.
func (cli *commandLine) authorize(required []string) (session.Session, error) {
	sess, _ := cli.sessions.Load()
	d := session.Decide(sess.Role, required)
	if d.Allow {
		return sess, nil
	}
	if d.RedirectTo == session.LoginPath {
		return sess, errLoginRequired
	}
	return sess, errRoleNotAllowed
}

// Commands

func (cli *commandLine) login(ctx context.Context, email string) error {
	in := loginInput{Email: core.CleanString(email, true /* lower */)}
	if err := cli.validate.Struct(in); err != nil {
		return core.TranslateValidation(err, cli.translator)
	}

	res, err := cli.backend.Login(ctx, in.Email)
	if err != nil {
		return pkgerrors.New(core.UserMessage(err,
			"Error de conexión. ¿Está encendido el backend?",
			"Acceso denegado. Verifica tu correo.",
		))
	}
	if err = cli.sessions.Save(session.New(res.Role, in.Email)); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Sesión iniciada como %s (%s)\n", in.Email, res.Role)
	return nil
}

func (cli *commandLine) logout() error {
	if err := cli.sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Sesión cerrada")
	return nil
}

func (cli *commandLine) whoami() error {
	sess, ok := cli.sessions.Load()
	if !ok {
		return errLoginRequired
	}
	fmt.Fprintf(cli.out, "%s (%s)\n", sess.Email, sess.Role)
	return nil
}

func (cli *commandLine) listStudents(ctx context.Context, query string) error {
	if _, err := cli.authorize(session.AnyStaffRoles); err != nil {
		return err
	}
	view := roster.NewView(cli.backend, cli.validate, cli.translator)
	if err := view.Mount(ctx); err != nil {
		return pkgerrors.Wrap(err, "Error al cargar los datos")
	}

	records := view.Filter(query)
	if len(records) == 0 {
		fmt.Fprintln(cli.out, "No se encontraron alumnos.")
		return nil
	}

	nameWidth := cli.width() - 70
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}
	title := cases.Title(language.Spanish)

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FOLIO\tRUT\tNOMBRE\tESTADO\tRESPONSABLE\tFECHA")
	for _, r := range records {
		rut := r.RUT.String()
		if dv := r.DigitoVerificador.String(); dv != "" {
			rut += "-" + dv
		}
		estado, responsable, fecha := "Pendiente", "-", "-"
		if r.Delivered() {
			estado = "Entregada"
			responsable = title.String(strings.ToLower(r.Responsable.String()))
			fecha = r.FechaEntregaDay()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Folio.String(), rut, truncate(r.NombreCompleto.String(), nameWidth), estado, responsable, fecha)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Mostrando %d registros\n", len(records))
	return nil
}

func (cli *commandLine) deliver(ctx context.Context, req roster.DeliveryRequest) error {
	if _, err := cli.authorize(session.AnyStaffRoles); err != nil {
		return err
	}
	view := roster.NewView(cli.backend, cli.validate, cli.translator)
	if err := view.Mount(ctx); err != nil {
		return pkgerrors.Wrap(err, "Error al cargar los datos")
	}

	updated, err := view.Register(ctx, req)
	switch cause := pkgerrors.Cause(err).(type) {
	case nil:
		fmt.Fprintf(cli.out, "¡Entrega registrada para %s!\n", updated.NombreCompleto.String())
		return nil
	case *core.ValidationError:
		return cause
	case *core.RejectedError:
		return pkgerrors.New("Error: " + core.UserMessage(err, "Error de conexión.", "Desconocido"))
	default:
		switch cause {
		case roster.ErrAlreadyDelivered:
			return pkgerrors.New("Esta TNE ya fue entregada.")
		case core.ErrConnection:
			return pkgerrors.New("Error de conexión.")
		}
		return err
	}
}

func (cli *commandLine) statistics(ctx context.Context) error {
	if _, err := cli.authorize(session.AdminRoles); err != nil {
		return err
	}
	view := stats.NewView(cli.backend)
	if err := view.Mount(ctx); err != nil {
		return pkgerrors.Wrap(err, "No se pudieron cargar los datos")
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	for _, c := range view.Cards() {
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", c.Icon, c.Title, c.Value, c.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Ranking Tutores")
	if !view.HasRanking() {
		fmt.Fprintln(w, "Sin datos de responsables aún.")
	}
	for _, r := range view.Ranking() {
		fmt.Fprintf(w, "%s %s\t%s\n", r.Medal, r.Nombre, r.Cantidad)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Evolución Histórica")
	if !view.HasHistory() {
		fmt.Fprintln(w, "Sin historial")
	}
	for _, d := range view.Snapshot().Historial {
		fmt.Fprintf(w, "%s\t%d\n", stats.TickLabel(d.Fecha), d.Cantidad)
	}
	return w.Flush()
}

func (cli *commandLine) report(ctx context.Context, path string) error {
	if _, err := cli.authorize(session.AdminRoles); err != nil {
		return err
	}
	rep, err := cli.backend.DownloadReport(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "No se pudo descargar el reporte")
	}
	if path == "" {
		path = rep.Filename
	}
	if err = ioutil.WriteFile(path, rep.Data, 0o644); err != nil {
		return pkgerrors.Wrap(err, "writing report")
	}
	fmt.Fprintf(cli.out, "Reporte guardado en %s (%d bytes)\n", path, len(rep.Data))
	return nil
}

// width is the terminal width, or defaultWidth when stdout is not a terminal.
func (cli *commandLine) width() int {
	w, _, err := termSizeFunc(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
