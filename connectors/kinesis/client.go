package kinesis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
)

type Client struct {
	svc *kinesis.Client
}

type NewClientParams struct {
	// The kinesis endpoint to use. Normally left blank but used for testing
	// against fake.
	Endpoint string
	Region   string
	// The AWS credentials profile name to use instead of default when credentials
	// falls back to credentials config file.
	Profile     string
	Credentials aws.CredentialsProvider
}

func NewClient(params *NewClientParams) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		func(lo *config.LoadOptions) error {
			if params.Region != "" {
				lo.Region = params.Region
			}
			if params.Profile != "" {
				lo.SharedConfigProfile = params.Profile
			}
			if params.Credentials != nil {
				lo.Credentials = params.Credentials
			}

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("kinesis load config: %w", err)
	}

	svc := kinesis.NewFromConfig(cfg, func(opts *kinesis.Options) {
		if params.Endpoint != "" {
			opts.BaseEndpoint = aws.String(params.Endpoint)
		}
	})

	return &Client{svc: svc}, nil
}

type Record struct {
	Key  string
	Data []byte
}

// FailedRecordsError reports entries Kinesis rejected from an otherwise
// successful PutRecords call.
type FailedRecordsError struct {
	Count     int
	ErrorCode string
	Message   string
}

func (e *FailedRecordsError) Error() string {
	return fmt.Sprintf("%d records failed (%s: %s)", e.Count, e.ErrorCode, e.Message)
}

func (c *Client) PutRecordBatch(ctx context.Context, streamARN string, records []Record) error {
	entries := make([]types.PutRecordsRequestEntry, len(records))
	for i, e := range records {
		entries[i] = types.PutRecordsRequestEntry{Data: e.Data, PartitionKey: aws.String(e.Key)}
	}
	recordBatch := &kinesis.PutRecordsInput{
		Records:   entries,
		StreamARN: aws.String(streamARN),
	}

	out, err := c.svc.PutRecords(ctx, recordBatch)
	if err != nil {
		return fmt.Errorf("put records: %w", err)
	}

	if failed := aws.ToInt32(out.FailedRecordCount); failed > 0 {
		ferr := &FailedRecordsError{Count: int(failed)}
		for _, r := range out.Records {
			if r.ErrorCode != nil {
				ferr.ErrorCode = aws.ToString(r.ErrorCode)
				ferr.Message = aws.ToString(r.ErrorMessage)
				break
			}
		}
		return ferr
	}

	return nil
}
