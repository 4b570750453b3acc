package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/contactbook/pkg/cli/config"
	"github.com/secmon-lab/contactbook/pkg/domain/model"
	"github.com/secmon-lab/contactbook/pkg/repository/memory"
	"github.com/secmon-lab/contactbook/pkg/usecase"
	"github.com/secmon-lab/contactbook/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdKnowledge() *cli.Command {
	return &cli.Command{
		Name:    "knowledge",
		Aliases: []string{"k"},
		Usage:   "Manage help center knowledge entries",
		Commands: []*cli.Command{
			cmdKnowledgeImport(),
			cmdKnowledgeValidate(),
			cmdKnowledgeDelete(),
		},
	}
}

func seedFileFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "Seed file (.toml, .yaml or .yml; gs://bucket/object is read from Cloud Storage)",
		Required:    true,
		Sources:     cli.EnvVars("CONTACTBOOK_KNOWLEDGE_FILE"),
		Destination: dst,
	}
}

func cmdKnowledgeImport() *cli.Command {
	var file string
	var repoCfg config.Repository

	flags := []cli.Flag{seedFileFlag(&file)}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "import",
		Usage: "Validate a seed file and upsert its entries by key",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			entries, err := config.LoadKnowledgeSeed(ctx, file)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", logging.ErrAttr(err))
				}
			}()

			uc := usecase.New(repo)
			n, err := uc.Knowledge.Import(ctx, entries)
			if err != nil {
				return goerr.Wrap(err, "failed to import knowledge", goerr.V(config.SeedPathKey, file))
			}

			logging.Default().Info("Knowledge imported", "file", file, "count", n)
			return nil
		},
	}
}

func cmdKnowledgeValidate() *cli.Command {
	var file string

	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a seed file without writing",
		Flags: []cli.Flag{seedFileFlag(&file)},
		Action: func(ctx context.Context, c *cli.Command) error {
			entries, err := config.LoadKnowledgeSeed(ctx, file)
			if err != nil {
				return err
			}

			uc := usecase.New(memory.New())
			if err := uc.Knowledge.ValidateEntries(entries); err != nil {
				return goerr.Wrap(err, "knowledge validation failed", goerr.V(config.SeedPathKey, file))
			}

			for _, dangling := range danglingRelatedKeys(entries) {
				logging.Default().Warn("Related key does not exist in the seed file",
					model.KnowledgeKeyKey, dangling.from,
					"related_key", dangling.to,
				)
			}

			logging.Default().Info("Knowledge validation passed", "file", file, "count", len(entries))
			return nil
		},
	}
}

func cmdKnowledgeDelete() *cli.Command {
	var key string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "key",
			Aliases:     []string{"k"},
			Usage:       "Key of the entry to soft-delete",
			Required:    true,
			Destination: &key,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Soft-delete a knowledge entry; importing the key again restores it",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", logging.ErrAttr(err))
				}
			}()

			uc := usecase.New(repo)
			if err := uc.Knowledge.Delete(ctx, model.KnowledgeKey(key)); err != nil {
				return goerr.Wrap(err, "failed to delete knowledge", goerr.V(model.KnowledgeKeyKey, key))
			}

			logging.Default().Info("Knowledge deleted", model.KnowledgeKeyKey, key)
			return nil
		},
	}
}

type relatedRef struct {
	from model.KnowledgeKey
	to   model.KnowledgeKey
}

// danglingRelatedKeys lists related keys that point outside the file. They are allowed
// since related keys are weak references, but usually indicate a typo.
func danglingRelatedKeys(entries []*model.KnowledgeEntry) []relatedRef {
	keys := make(map[model.KnowledgeKey]struct{}, len(entries))
	for _, e := range entries {
		keys[e.Key] = struct{}{}
	}

	var dangling []relatedRef
	for _, e := range entries {
		for _, related := range e.RelatedKeys {
			if _, ok := keys[related]; !ok {
				dangling = append(dangling, relatedRef{from: e.Key, to: related})
			}
		}
	}
	return dangling
}
