package kinesis_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reduction.dev/h2ofixture/connectors"
	"reduction.dev/h2ofixture/connectors/kinesis"
	"reduction.dev/h2ofixture/connectors/kinesis/kinesisfake"
)

func newFakeClient(t *testing.T, endpoint string) *kinesis.Client {
	t.Helper()
	client, err := kinesis.NewClient(&kinesis.NewClientParams{
		Endpoint:    endpoint,
		Region:      "us-east-2",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", "session"),
	})
	require.NoError(t, err)
	return client
}

func TestSinkWriter_PutsRecordsAgainstFake(t *testing.T) {
	svr, fake := kinesisfake.StartFake()
	defer svr.Close()
	streamARN := fake.CreateStream("h2o", 1)

	sink, err := kinesis.NewSink(kinesis.SinkConfig{
		StreamARN: streamARN,
		Client:    newFakeClient(t, svr.URL),
	})
	require.NoError(t, err)

	require.NoError(t, sink.Write(connectors.SinkRecord{Key: "1", Value: []byte(`["1","dog"]`)}))
	require.NoError(t, sink.Write(connectors.SinkRecord{Key: "5", Value: []byte(`["5","cat"]`)}))

	records := fake.Records("h2o")
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].PartitionKey)
	assert.Equal(t, `["1","dog"]`, string(records[0].Data))
	assert.Equal(t, "5", records[1].PartitionKey)
}

func TestSinkWriter_MissingStreamIsTerminal(t *testing.T) {
	svr, fake := kinesisfake.StartFake()
	defer svr.Close()
	_ = fake

	sink, err := kinesis.NewSink(kinesis.SinkConfig{
		StreamARN: "arn:aws:kinesis:us-east-2:123456789012:stream/missing",
		Client:    newFakeClient(t, svr.URL),
	})
	require.NoError(t, err)

	err = sink.Write(connectors.SinkRecord{Key: "1", Value: []byte("v")})
	require.Error(t, err)
	assert.False(t, connectors.IsRetryable(err))
}

func TestSinkWriter_ThrottledRecordsAreRetryable(t *testing.T) {
	svr, fake := kinesisfake.StartFake()
	defer svr.Close()
	streamARN := fake.CreateStream("h2o", 2)
	fake.ThrottleRecords(1)

	sink, err := kinesis.NewSink(kinesis.SinkConfig{
		StreamARN: streamARN,
		Client:    newFakeClient(t, svr.URL),
	})
	require.NoError(t, err)

	err = sink.Write(connectors.SinkRecord{Key: "1", Value: []byte("v")})
	require.Error(t, err)
	assert.True(t, connectors.IsRetryable(err))
	var failed *kinesis.FailedRecordsError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "ProvisionedThroughputExceededException", failed.ErrorCode)

	require.NoError(t, sink.Write(connectors.SinkRecord{Key: "1", Value: []byte("v")}))
	assert.Len(t, fake.Records("h2o"), 1)
}

func TestSinkConfig_Validate(t *testing.T) {
	arn := "arn:aws:kinesis:us-east-2:123456789012:stream/h2o"
	assert.ErrorContains(t, (&kinesis.SinkConfig{StreamARN: "h2o"}).Validate(), "invalid kinesis sink streamArn")
	assert.NoError(t, (&kinesis.SinkConfig{StreamARN: arn}).Validate())
	assert.NoError(t, (&kinesis.SinkConfig{StreamARN: arn, Endpoint: "http://localhost:4566"}).Validate())
	assert.ErrorContains(t, (&kinesis.SinkConfig{StreamARN: arn, Endpoint: "localhost:4566"}).Validate(), "invalid kinesis sink endpoint")
	assert.ErrorContains(t, (&kinesis.SinkConfig{StreamARN: arn, Endpoint: "kinesis"}).Validate(), "invalid kinesis sink endpoint")
}
