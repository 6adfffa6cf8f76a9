package kinesisfake

import (
	"encoding/json"
	"fmt"
	"math/big"
)

type CreateStreamRequest struct {
	ShardCount int64
	StreamName string
}

type CreateStreamResponse struct{}

func (f *Fake) createStream(body []byte) (*CreateStreamResponse, error) {
	var request CreateStreamRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return nil, err
	}
	if _, ok := f.streams[request.StreamName]; ok {
		return nil, &ResourceInUseException{message: fmt.Sprintf("Stream %s already exists", request.StreamName)}
	}

	f.addStream(request.StreamName, max(request.ShardCount, 1))
	return &CreateStreamResponse{}, nil
}

func (f *Fake) addStream(name string, shardCount int64) string {
	arn := streamARN(name)
	f.streams[name] = &stream{
		arn:    arn,
		shards: createShards(shardCount),
	}
	return arn
}

// createShards splits the 128-bit hash key space evenly across count shards.
func createShards(count int64) []*shard {
	shards := make([]*shard, count)
	keySpace := new(big.Int).Exp(big.NewInt(2), big.NewInt(128), nil)
	shardRange := new(big.Int).Div(keySpace, big.NewInt(count))

	for i := range count {
		start := new(big.Int).Mul(shardRange, big.NewInt(i))
		end := new(big.Int).Sub(new(big.Int).Add(start, shardRange), big.NewInt(1))
		if i == count-1 {
			end = new(big.Int).Sub(keySpace, big.NewInt(1))
		}
		shards[i] = &shard{
			id: fmt.Sprintf("shardId-%012d", i),
			hashKeyRange: hashKeyRange{
				startingHashKey: start,
				endingHashKey:   end,
			},
		}
	}

	return shards
}
