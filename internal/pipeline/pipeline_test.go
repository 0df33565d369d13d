package pipeline_test

import (
	"context"
	"os"
	"path/filepath"

	"keysync/internal/cache"
	"keysync/internal/config"
	"keysync/internal/pipeline"
	"keysync/internal/resource"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func writeFile(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = Describe("Reconciliation run", func() {
	var (
		root   string
		cfg    *config.Config
		runner *pipeline.Runner
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "keysync-pipeline-*")
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
		cfg = config.Default()
		cfg.SourceDir = filepath.Join(root, "src")
		cfg.PrimaryTable = filepath.Join(root, "conf", "language.properties")
		cfg.SecondaryTables = []string{
			filepath.Join(root, "conf", "language_en.properties"),
			filepath.Join(root, "conf", "language_zh.properties"),
		}
	})

	AfterEach(func() {
		os.RemoveAll(root)
	})

	JustBeforeEach(func() {
		Expect(cfg.Validate()).To(Succeed())
		var err error
		runner, err = pipeline.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("when the source directory does not exist", func() {
		It("reports it and stops without an error", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SourceMissing).To(BeTrue())
			Expect(cfg.PrimaryTable).NotTo(BeAnExistingFile())
		})
	})

	Context("when the source root is a regular file", func() {
		BeforeEach(func() {
			writeFile(cfg.SourceDir, `bundle.getString("Ignored");`)
		})

		It("scans nothing and succeeds", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SourceMissing).To(BeFalse())
			Expect(res.FilesScanned).To(BeZero())
			Expect(res.Missing.Len()).To(BeZero())
			Expect(cfg.PrimaryTable).NotTo(BeAnExistingFile())
		})
	})

	Context("when no resource files exist", func() {
		BeforeEach(func() {
			writeFile(filepath.Join(cfg.SourceDir, "License.java"),
				`String s = bundle.getString("LicenseExpired");`)
		})

		It("creates the primary table with the well-known phrase", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Missing.Sorted()).To(Equal([]string{"LicenseExpired"}))
			Expect(res.Written).NotTo(BeNil())
			Expect(res.Written.Created).To(BeTrue())

			Expect(readFile(cfg.PrimaryTable)).To(Equal(
				"# Resource keys\n\n# Missing keys added automatically\nLicenseExpired = License has expired\n"))
			Expect(cfg.SecondaryTables[0]).NotTo(BeAnExistingFile())
		})

		It("reports every table as not found", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Tables).To(HaveLen(3))
			for _, t := range res.Tables {
				Expect(t.Status).To(Equal("not-found"))
				Expect(t.Keys).To(BeZero())
			}
			Expect(res.Tables[0].Primary).To(BeTrue())
		})
	})

	Context("with keys spread across files and tables", func() {
		BeforeEach(func() {
			writeFile(filepath.Join(cfg.SourceDir, "a", "Main.java"), `
				ResourceBundle.getString("AppTitle");
				languageBundle.getString("PaymentFailedMessage");
				x.getString('SetupCompleteTitle');
			`)
			writeFile(filepath.Join(cfg.SourceDir, "b", "Other.java"), `
				Main.bundle().getString("AppTitle");
				bundle.getString("Greeting");
				bundle.getString("ChineseOnly");
			`)
			writeFile(filepath.Join(cfg.SourceDir, "notes.txt"), `bundle.getString("Ignored")`)
			writeFile(cfg.PrimaryTable, "# main\nAppTitle = My App")
			writeFile(cfg.SecondaryTables[0], "Greeting = Hello\n")
			writeFile(cfg.SecondaryTables[1], "ChineseOnly = 中文\n")
		})

		It("appends only keys no table defines, sorted, keeping prior content", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.FilesScanned).To(Equal(2))
			Expect(res.Referenced.Sorted()).To(Equal([]string{
				"AppTitle", "ChineseOnly", "Greeting", "PaymentFailedMessage", "SetupCompleteTitle",
			}))
			Expect(res.Missing.Sorted()).To(Equal([]string{"PaymentFailedMessage", "SetupCompleteTitle"}))

			Expect(readFile(cfg.PrimaryTable)).To(Equal("# main\nAppTitle = My App\n" +
				"\n# Missing keys added automatically\n" +
				"PaymentFailedMessage = Error: Payment\n" +
				"SetupCompleteTitle = SetupComplete\n"))
			Expect(readFile(cfg.SecondaryTables[0])).To(Equal("Greeting = Hello\n"))
			Expect(readFile(cfg.SecondaryTables[1])).To(Equal("ChineseOnly = 中文\n"))
		})

		It("is idempotent", func() {
			_, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			after := readFile(cfg.PrimaryTable)

			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Missing.Len()).To(BeZero())
			Expect(res.Written).To(BeNil())
			Expect(readFile(cfg.PrimaryTable)).To(Equal(after))
		})

		It("leaves the primary table alone in a dry run", func() {
			res, err := runner.Run(ctx, pipeline.Options{DryRun: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Missing.Len()).To(Equal(2))
			Expect(res.Entries).To(HaveLen(2))
			Expect(res.Entries[0].Value).To(Equal("Error: Payment"))
			Expect(res.Written).To(BeNil())
			Expect(readFile(cfg.PrimaryTable)).To(Equal("# main\nAppTitle = My App"))
		})

		It("records per-file key lists for files with keys", func() {
			res, err := runner.Run(ctx, pipeline.Options{DryRun: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Files).To(HaveLen(2))
			Expect(res.Files[0].Keys).To(Equal([]string{"AppTitle", "PaymentFailedMessage", "SetupCompleteTitle"}))
		})

		Context("using several workers and a cache", func() {
			BeforeEach(func() {
				cfg.WorkerCount = 4
			})

			It("produces the same result on repeated runs", func() {
				c := cache.NewExtractionCache()
				runner.WithCache(c)
				first, err := runner.Run(ctx, pipeline.Options{DryRun: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(c.Len()).To(Equal(2))

				second, err := runner.Run(ctx, pipeline.Options{DryRun: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(second.Missing.Sorted()).To(Equal(first.Missing.Sorted()))
				Expect(second.Files).To(Equal(first.Files))
			})
		})
	})

	Context("with configured defaults and extra patterns", func() {
		BeforeEach(func() {
			cfg.Defaults = map[string]string{"Greeting": "Hi there"}
			cfg.ExtraPatterns = []string{`tr\("([^"]+)"\)`}
			writeFile(filepath.Join(cfg.SourceDir, "Main.java"), `tr("Greeting");`)
		})

		It("uses both", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Missing.Sorted()).To(Equal([]string{"Greeting"}))
			Expect(readFile(cfg.PrimaryTable)).To(ContainSubstring("Greeting = Hi there\n"))
		})
	})

	Context("when a source file cannot be decoded", func() {
		BeforeEach(func() {
			writeFile(filepath.Join(cfg.SourceDir, "Bad.java"), "b.getString(\"Bad\") \x81\x20\xff")
			writeFile(filepath.Join(cfg.SourceDir, "Good.java"), `b.getString("Good");`)
		})

		It("skips it and keeps scanning", func() {
			res, err := runner.Run(ctx, pipeline.Options{DryRun: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.FilesScanned).To(Equal(2))
			Expect(res.Referenced.Sorted()).To(Equal([]string{"Good"}))
		})
	})

	Context("when the primary table cannot be written", func() {
		BeforeEach(func() {
			writeFile(filepath.Join(cfg.SourceDir, "Main.java"), `b.getString("Key");`)
			blocker := filepath.Join(root, "blocker")
			writeFile(blocker, "not a directory")
			cfg.PrimaryTable = filepath.Join(blocker, "language.properties")
		})

		It("returns the cause", func() {
			res, err := runner.Run(ctx, pipeline.Options{})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("language.properties"))
			Expect(res.Missing.Sorted()).To(Equal([]string{"Key"}))
		})
	})

	It("reloads written keys through the resource loader", func() {
		writeFile(filepath.Join(cfg.SourceDir, "Main.java"), `b.getString("ConfirmExit");`)
		r, err := pipeline.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = r.Run(ctx, pipeline.Options{})
		Expect(err).NotTo(HaveOccurred())

		table, err := resource.Load(cfg.PrimaryTable)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Keys.Contains("ConfirmExit")).To(BeTrue())
		Expect(readFile(cfg.PrimaryTable)).To(ContainSubstring("ConfirmExit = Please confirm exit\n"))
	})
})
