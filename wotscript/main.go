package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/bwesterb/go-wotscript"
	"github.com/bwesterb/go-wotscript/internal/artifact"
	"github.com/bwesterb/go-wotscript/script"
)

// Routes the log messages of the wotscript package to zap.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Logf(format string, a ...interface{}) {
	l.s.Debugf(format, a...)
}

func contextFromFlags(c *cli.Context) (*wotscript.Context, error) {
	ctx := wotscript.NewContextFromName(c.String("alg"))
	if ctx == nil {
		return nil, cli.NewExitError(
			fmt.Sprintf("unknown instance %s; see algs", c.String("alg")), 2)
	}
	ctx.Threads = c.GlobalInt("threads")
	return ctx, nil
}

func masterFromFlags(c *cli.Context) ([]byte, error) {
	if !c.IsSet("secret") {
		return nil, cli.NewExitError("--secret is required", 2)
	}
	return wotscript.DecodeMasterSecret(c.String("secret"))
}

func cmdAlgs(c *cli.Context) error {
	for _, name := range wotscript.ListNames() {
		ctx := wotscript.NewContextFromName(name)
		params := ctx.Params()
		fmt.Printf("%-22s %3d chains  %4d byte keys  %4d byte witness\n",
			ctx.Name(), params.WotsLen(), params.PublicKeySize(),
			params.WitnessSize())
	}
	return nil
}

func cmdKeygen(c *cli.Context) error {
	ctx, err := contextFromFlags(c)
	if err != nil {
		return err
	}
	master, err := masterFromFlags(c)
	if err != nil {
		return err
	}
	pks, err2 := ctx.GenerateKeys(master)
	if err2 != nil {
		return err2
	}
	buf, _ := pks.MarshalBinary()
	if err = artifact.WriteFor(c.String("out"), ctx, buf); err != nil {
		return err
	}
	fmt.Printf("Wrote %d public keys for %s to %s\n",
		len(pks.Keys()), ctx.Name(), c.String("out"))
	return nil
}

func cmdWitness(c *cli.Context) error {
	ctx, err := contextFromFlags(c)
	if err != nil {
		return err
	}
	master, err := masterFromFlags(c)
	if err != nil {
		return err
	}
	w, err2 := ctx.GenerateWitness(master, c.String("message"))
	if err2 != nil {
		return err2
	}
	buf, _ := w.MarshalBinary()
	if err = artifact.WriteFor(c.String("out"), ctx, buf); err != nil {
		return err
	}
	fmt.Printf("Wrote witness with digits %v to %s\n", w.Digits(), c.String("out"))
	return nil
}

func readKeys(path string) (*wotscript.PublicKeySet, error) {
	ctx, buf, err := artifact.ReadFor(path)
	if err != nil {
		return nil, err
	}
	pks, err2 := ctx.PublicKeySetFromBytes(buf)
	if err2 != nil {
		return nil, err2
	}
	return pks, nil
}

func cmdCompile(c *cli.Context) error {
	pks, err := readKeys(c.String("keys"))
	if err != nil {
		return err
	}
	prog := pks.Verifier()
	if c.Bool("asm") {
		fmt.Println(prog)
	}
	if c.IsSet("out") {
		if err = artifact.WriteFor(c.String("out"), pks.Context(), prog.Bytes()); err != nil {
			return err
		}
	}
	fmt.Printf("Verifier: %d instructions, %d bytes\n", prog.Len(), prog.Size())
	return nil
}

type stepPrinter struct{}

func (stepPrinter) OnStep(phase script.Phase, pc int, ins script.Instruction,
	stack [][]byte) {
	if phase == script.Locking {
		fmt.Printf("%5d  %-16s depth %d\n", pc, ins, len(stack))
	}
}

func (stepPrinter) OnFault(phase script.Phase, pc int, err error) {
	fmt.Printf("fault at %d: %v\n", pc, err)
}

func cmdVerify(c *cli.Context) error {
	pks, err := readKeys(c.String("keys"))
	if err != nil {
		return err
	}
	ctx, buf, err := artifact.ReadFor(c.String("witness"))
	if err != nil {
		return err
	}
	if ctx.Params() != pks.Context().Params() {
		return cli.NewExitError("witness and keys belong to different instances", 2)
	}
	w, err2 := ctx.WitnessFromBytes(buf)
	if err2 != nil {
		return err2
	}

	var opts []script.Option
	if c.Bool("trace") {
		opts = append(opts, script.WithTracer(stepPrinter{}))
	}
	outcome := script.Execute(w.Unlocking(), pks.Verifier(), opts...)
	fmt.Println(outcome)
	if outcome != script.Accept {
		return cli.NewExitError("", 1)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "wotscript"
	app.Usage = "Winternitz one-time signatures verified by stack machine programs"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "Log progress",
		},
		cli.IntFlag{
			Name:  "threads, t",
			Usage: "Number of threads for key generation (0 for all cores)",
		},
	}

	app.Before = func(c *cli.Context) error {
		if !c.Bool("verbose") {
			return nil
		}
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		wotscript.SetLogger(zapLogger{logger.Sugar()})
		return nil
	}

	algFlag := cli.StringFlag{
		Name:  "alg, a",
		Value: "WOTS-HASH160_W16_40",
		Usage: "Instance to use",
	}
	secretFlag := cli.StringFlag{
		Name:  "secret, s",
		Usage: "Hex encoded master secret",
	}

	app.Commands = []cli.Command{
		{
			Name:   "algs",
			Usage:  "List WOTS instances",
			Action: cmdAlgs,
		},
		{
			Name:   "keygen",
			Usage:  "Generate the public key set of a master secret",
			Action: cmdKeygen,
			Flags: []cli.Flag{
				algFlag,
				secretFlag,
				cli.StringFlag{
					Name:  "out, o",
					Value: "wots.keys",
					Usage: "Where to write the public key set",
				},
			},
		},
		{
			Name:   "witness",
			Usage:  "Generate the witness for a message; never twice per key",
			Action: cmdWitness,
			Flags: []cli.Flag{
				algFlag,
				secretFlag,
				cli.StringFlag{
					Name:  "message, m",
					Usage: "Message, one character per digit",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "wots.witness",
					Usage: "Where to write the witness",
				},
			},
		},
		{
			Name:   "compile",
			Usage:  "Compile the verifier program for a public key set",
			Action: cmdCompile,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "keys, k",
					Value: "wots.keys",
					Usage: "Public key set",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "Where to write the serialized program",
				},
				cli.BoolFlag{
					Name:  "asm",
					Usage: "Print the disassembly",
				},
			},
		},
		{
			Name:   "verify",
			Usage:  "Run a witness against the verifier of a public key set",
			Action: cmdVerify,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "keys, k",
					Value: "wots.keys",
					Usage: "Public key set",
				},
				cli.StringFlag{
					Name:  "witness, w",
					Value: "wots.witness",
					Usage: "Witness",
				},
				cli.BoolFlag{
					Name:  "trace",
					Usage: "Print every executed instruction",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
