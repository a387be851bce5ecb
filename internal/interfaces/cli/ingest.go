package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/DentEMG-Intelligence/pkg/client"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	var (
		title    string
		authors  string
		journal  string
		year     int
		doi      string
		url      string
		keywords []string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a clinical article into the corpus",
		Long: "Submit one article to the server.  The article text is read from --file,\n" +
			"or from stdin when --file is \"-\" or omitted.  The server extracts EMG\n" +
			"channel tables and composite mentions into labeled training pairs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			text, err := readArticleText(cmd, file)
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd, cliCtx)
			defer cancel()

			res, err := cliCtx.Client.IngestArticle(ctx, &client.ArticleRequest{
				Title:    title,
				Authors:  authors,
				Journal:  journal,
				Year:     year,
				DOI:      doi,
				URL:      url,
				Keywords: keywords,
				Text:     text,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Ingested article %s: %d pair(s) extracted, %d knowledge item(s)\n",
				res.ArticleID, res.PairsExtracted, res.KnowledgeItems)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "article title (required)")
	f.StringVar(&authors, "authors", "", "article authors")
	f.StringVar(&journal, "journal", "", "journal name")
	f.IntVar(&year, "year", 0, "publication year")
	f.StringVar(&doi, "doi", "", "DOI")
	f.StringVar(&url, "url", "", "source URL")
	f.StringSliceVar(&keywords, "keyword", nil, "article keyword (repeatable)")
	f.StringVarP(&file, "file", "f", "", "path to the article text, or '-' for stdin")
	cmd.MarkFlagRequired("title")

	return cmd
}

func readArticleText(cmd *cobra.Command, file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read article text from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read article file: %w", err)
	}
	return string(data), nil
}
